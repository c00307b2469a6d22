package project

import "github.com/leapstack-labs/olistdw/pkg/core"

// Staging model names.
const (
	StgOrders                  = "stg_orders"
	StgOrderItems              = "stg_order_items"
	StgOrderPayments           = "stg_order_payments"
	StgOrderReviews            = "stg_order_reviews"
	StgCustomers               = "stg_customers"
	StgGeolocation             = "stg_geolocation"
	StgProducts                = "stg_products"
	StgSellers                 = "stg_sellers"
	StgProductCategoryName     = "stg_product_category_name"
	StgClosedDeals             = "stg_closed_deals"
	StgMarketingQualifiedLeads = "stg_marketing_qualified_leads"
)

// Staging declares a staging model reading src. The rules must cover every
// raw column exactly once; Validate enforces it.
func Staging(name string, src core.SourceTable, rules ...core.CastRule) *core.Model {
	return &core.Model{
		Name:   name,
		Config: core.StagingConfig(),
		Source: &src,
		Rules:  rules,
	}
}

// Str casts column to string.
func Str(column string) core.CastRule {
	return core.CastRule{Column: column, Type: core.TypeString}
}

// Num casts column to an arbitrary precision decimal.
func Num(column string) core.CastRule {
	return core.CastRule{Column: column, Type: core.TypeNumeric}
}

// Int casts column to a 64-bit integer.
func Int(column string) core.CastRule {
	return core.CastRule{Column: column, Type: core.TypeInteger}
}

// TS safe-parses column as a timestamp.
func TS(column string) core.CastRule {
	return core.CastRule{Column: column, Type: core.TypeTimestamp}
}

// Renamed returns rule with a different output column name.
func Renamed(rule core.CastRule, as string) core.CastRule {
	rule.As = as
	return rule
}

// Strs casts every listed column to string.
func Strs(columns ...string) []core.CastRule {
	rules := make([]core.CastRule, len(columns))
	for i, c := range columns {
		rules[i] = Str(c)
	}
	return rules
}

func rules(groups ...[]core.CastRule) []core.CastRule {
	var out []core.CastRule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func one(r ...core.CastRule) []core.CastRule { return r }

func stagingModels(ns string) []*core.Model {
	models := []*core.Model{
		Staging(StgOrders, source(ns, SourceOrders), rules(
			Strs("order_id", "customer_id", "order_status"),
			one(
				TS("order_purchase_timestamp"),
				TS("order_approved_at"),
				TS("order_delivered_carrier_date"),
				TS("order_delivered_customer_date"),
				TS("order_estimated_delivery_date"),
			),
		)...),
		Staging(StgOrderItems, source(ns, SourceOrderItems),
			Str("order_id"),
			Int("order_item_id"),
			Str("product_id"),
			Str("seller_id"),
			TS("shipping_limit_date"),
			Num("price"),
			Num("freight_value"),
		),
		Staging(StgOrderPayments, source(ns, SourceOrderPayments),
			Str("order_id"),
			Int("payment_sequential"),
			Str("payment_type"),
			Int("payment_installments"),
			Num("payment_value"),
		),
		Staging(StgOrderReviews, source(ns, SourceOrderReviews),
			Str("review_id"),
			Str("order_id"),
			Int("review_score"),
			Str("review_comment_title"),
			Str("review_comment_message"),
			TS("review_creation_date"),
			TS("review_answer_timestamp"),
		),
		// Zip prefixes stay strings to keep leading zeros.
		Staging(StgCustomers, source(ns, SourceCustomers), Strs(
			"customer_id", "customer_unique_id", "customer_zip_code_prefix",
			"customer_city", "customer_state",
		)...),
		Staging(StgGeolocation, source(ns, SourceGeolocation),
			Str("geolocation_zip_code_prefix"),
			Num("geolocation_lat"),
			Num("geolocation_lng"),
			Str("geolocation_city"),
			Str("geolocation_state"),
		),
		Staging(StgProducts, source(ns, SourceProducts), rules(
			Strs("product_id", "product_category_name"),
			one(
				Int("product_name_lenght"),
				Int("product_description_lenght"),
				Int("product_photos_qty"),
				Int("product_weight_g"),
				Int("product_length_cm"),
				Int("product_height_cm"),
				Int("product_width_cm"),
			),
		)...),
		Staging(StgSellers, source(ns, SourceSellers), Strs(
			"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
		)...),
		Staging(StgProductCategoryName, source(ns, SourceProductCategoryName), Strs(
			"product_category_name", "product_category_name_english",
		)...),
		Staging(StgClosedDeals, source(ns, SourceClosedDeals), rules(
			Strs("mql_id", "seller_id", "sdr_id", "sr_id"),
			one(TS("won_date")),
			Strs("business_segment", "lead_type", "lead_behaviour_profile"),
			one(Renamed(Str("has_comnpany"), "has_company")),
			Strs("has_gtin", "average_stock", "business_type"),
			one(
				Num("declared_product_catalog_size"),
				Num("declared_monthly_revenue"),
			),
		)...),
		// first_contact_date is delivered date-only, so under the fixed
		// timestamp pattern it parses to NULL.
		Staging(StgMarketingQualifiedLeads, source(ns, SourceMarketingQualifiedLeads),
			Str("mql_id"),
			TS("first_contact_date"),
			Str("landing_page_id"),
			Str("origin"),
		),
	}

	descriptions := map[string]string{
		StgOrders:                  "Typed orders with safe-parsed lifecycle timestamps.",
		StgOrderItems:              "Typed order line items.",
		StgOrderPayments:           "Typed order payments, one row per payment sequence.",
		StgOrderReviews:            "Typed customer reviews.",
		StgCustomers:               "Customers.",
		StgGeolocation:             "Zip prefix geolocation points.",
		StgProducts:                "Typed product catalog.",
		StgSellers:                 "Sellers.",
		StgProductCategoryName:     "Portuguese to English category translation.",
		StgClosedDeals:             "Closed marketing deals.",
		StgMarketingQualifiedLeads: "Marketing qualified leads.",
	}
	for _, m := range models {
		m.Description = descriptions[m.Name]
	}
	return models
}
