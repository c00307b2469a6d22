package project

import "github.com/leapstack-labs/olistdw/pkg/core"

// Target model names.
const (
	DimReviews   = "dim_reviews"
	DimProducts  = "dim_products"
	DimOrders    = "dim_orders"
	OrderSummary = "order_summary"
)

// allColumns is expanded by the catalog into every column of the model.
const allColumns = "*"

// TargetBuilder assembles a target model: one base input, inner joins and
// a projected column list.
type TargetBuilder struct {
	m *core.Model
}

// Target starts a target model named name.
func Target(name string) *TargetBuilder {
	return &TargetBuilder{m: &core.Model{
		Name:   name,
		Config: core.TargetNodeConfig(),
	}}
}

// Describe sets the model description.
func (b *TargetBuilder) Describe(desc string) *TargetBuilder {
	b.m.Description = desc
	return b
}

// From sets the base input.
func (b *TargetBuilder) From(model string) *TargetBuilder {
	b.m.From = model
	return b
}

// InnerJoin adds an inner equi-join with model on the given keys.
func (b *TargetBuilder) InnerJoin(model string, on ...core.JoinKey) *TargetBuilder {
	b.m.Joins = append(b.m.Joins, core.Join{Model: model, Type: core.JoinInner, On: on})
	return b
}

// Select projects columns of model under their own names.
func (b *TargetBuilder) Select(model string, columns ...string) *TargetBuilder {
	for _, c := range columns {
		b.m.Columns = append(b.m.Columns, core.ColumnRef{Model: model, Column: c})
	}
	return b
}

// SelectAs projects one column of model under a new name.
func (b *TargetBuilder) SelectAs(model, column, as string) *TargetBuilder {
	b.m.Columns = append(b.m.Columns, core.ColumnRef{Model: model, Column: column, As: as})
	return b
}

// SelectAll projects every column of model in its declared order.
func (b *TargetBuilder) SelectAll(model string) *TargetBuilder {
	b.m.Columns = append(b.m.Columns, core.ColumnRef{Model: model, Column: allColumns})
	return b
}

// Build returns the model.
func (b *TargetBuilder) Build() *core.Model {
	return b.m
}

// On matches column of leftModel against the same-named column of the
// joined model.
func On(leftModel, column string) core.JoinKey {
	return core.JoinKey{LeftModel: leftModel, LeftColumn: column, RightColumn: column}
}

func targetModels() []*core.Model {
	return []*core.Model{
		Target(DimReviews).
			Describe("Customer reviews, one row per review.").
			From(StgOrderReviews).
			SelectAll(StgOrderReviews).
			Build(),

		Target(DimProducts).
			Describe("Products with an English category name. Products without a translated category are dropped.").
			From(StgProducts).
			InnerJoin(StgProductCategoryName, On(StgProducts, "product_category_name")).
			Select(StgProducts, "product_id").
			Select(StgProductCategoryName, "product_category_name_english").
			Build(),

		Target(DimOrders).
			Describe("One row per order item and payment combination.").
			From(StgOrderItems).
			InnerJoin(StgOrders, On(StgOrderItems, "order_id")).
			InnerJoin(StgOrderPayments, On(StgOrderItems, "order_id")).
			Select(StgOrderItems, "order_id", "order_item_id", "product_id", "seller_id").
			Select(StgOrders, "customer_id", "order_status", "order_purchase_timestamp", "order_delivered_customer_date").
			Select(StgOrderItems, "price", "freight_value").
			Select(StgOrderPayments, "payment_sequential", "payment_type", "payment_installments", "payment_value").
			Build(),

		Target(OrderSummary).
			Describe("Order, product, payment value and status per item and payment.").
			From(StgOrders).
			InnerJoin(StgOrderItems, On(StgOrders, "order_id")).
			InnerJoin(StgOrderPayments, On(StgOrders, "order_id")).
			Select(StgOrders, "order_id", "customer_id").
			Select(StgOrderItems, "product_id").
			Select(StgOrderPayments, "payment_value").
			Select(StgOrders, "order_status").
			Build(),
	}
}
