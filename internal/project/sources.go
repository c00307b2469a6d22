package project

import "github.com/leapstack-labs/olistdw/pkg/core"

// Raw Olist source table names, as delivered by the extract/load pipeline.
const (
	SourceOrders                  = "olist_orders"
	SourceOrderItems              = "olist_order_items"
	SourceOrderPayments           = "olist_order_payments"
	SourceOrderReviews            = "olist_order_reviews"
	SourceCustomers               = "olist_customers"
	SourceGeolocation             = "olist_geolocation"
	SourceProducts                = "olist_products"
	SourceSellers                 = "olist_sellers"
	SourceProductCategoryName     = "olist_product_category_name"
	SourceClosedDeals             = "olist_closed_deals"
	SourceMarketingQualifiedLeads = "olist_marketing_qualified_leads"
)

// sourceColumns lists every raw column in file order. Names are kept as
// delivered, including the upstream typos (product_name_lenght,
// has_comnpany).
var sourceColumns = []struct {
	table   string
	columns []string
}{
	{SourceClosedDeals, []string{
		"mql_id", "seller_id", "sdr_id", "sr_id", "won_date", "business_segment",
		"lead_type", "lead_behaviour_profile", "has_comnpany", "has_gtin",
		"average_stock", "business_type", "declared_product_catalog_size",
		"declared_monthly_revenue",
	}},
	{SourceCustomers, []string{
		"customer_id", "customer_unique_id", "customer_zip_code_prefix",
		"customer_city", "customer_state",
	}},
	{SourceGeolocation, []string{
		"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng",
		"geolocation_city", "geolocation_state",
	}},
	{SourceMarketingQualifiedLeads, []string{
		"mql_id", "first_contact_date", "landing_page_id", "origin",
	}},
	{SourceOrderItems, []string{
		"order_id", "order_item_id", "product_id", "seller_id",
		"shipping_limit_date", "price", "freight_value",
	}},
	{SourceOrderPayments, []string{
		"order_id", "payment_sequential", "payment_type",
		"payment_installments", "payment_value",
	}},
	{SourceOrderReviews, []string{
		"review_id", "order_id", "review_score", "review_comment_title",
		"review_comment_message", "review_creation_date", "review_answer_timestamp",
	}},
	{SourceOrders, []string{
		"order_id", "customer_id", "order_status", "order_purchase_timestamp",
		"order_approved_at", "order_delivered_carrier_date",
		"order_delivered_customer_date", "order_estimated_delivery_date",
	}},
	{SourceProducts, []string{
		"product_id", "product_category_name", "product_name_lenght",
		"product_description_lenght", "product_photos_qty", "product_weight_g",
		"product_length_cm", "product_height_cm", "product_width_cm",
	}},
	{SourceSellers, []string{
		"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
	}},
	{SourceProductCategoryName, []string{
		"product_category_name", "product_category_name_english",
	}},
}

// Sources returns the raw Olist tables in the given namespace.
func Sources(namespace string) []core.SourceTable {
	out := make([]core.SourceTable, len(sourceColumns))
	for i, s := range sourceColumns {
		out[i] = core.SourceTable{
			Ref:     core.SourceRef{Namespace: namespace, Table: s.table},
			Columns: append([]string(nil), s.columns...),
		}
	}
	return out
}

// source looks up one raw table by name. It panics on an unknown name since
// the table list is static.
func source(namespace, table string) core.SourceTable {
	for _, s := range Sources(namespace) {
		if s.Ref.Table == table {
			return s
		}
	}
	panic("project: unknown source table " + table)
}
