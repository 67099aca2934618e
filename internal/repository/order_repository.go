package repository

import (
	"context"

	"github.com/stemsi/kodemy-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	CreateWithDetail(ctx context.Context, order *model.Order, detail *model.OrderDetail) error
	GetByID(ctx context.Context, id int) (*model.Order, error)
	GetByMidtransID(ctx context.Context, midtransOrderID string) (*model.Order, error)
	SetMidtransOrderID(ctx context.Context, id int, midtransOrderID string) error
	UpdatePaymentStatus(ctx context.Context, id int, status model.PaymentStatus) error
	MarkPaid(ctx context.Context, id int) (bool, error)
	GetDetailByOrderID(ctx context.Context, orderID int) (*model.OrderDetail, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithDetail inserts the order and its single detail line atomically.
// detail.OrderID is filled from the new order.
func (r *orderRepository) CreateWithDetail(ctx context.Context, order *model.Order, detail *model.OrderDetail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("OrderDetails").Create(order).Error; err != nil {
			return err
		}
		detail.OrderID = order.ID
		return tx.Omit("Course").Create(detail).Error
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id int) (*model.Order, error) {
	o := &model.Order{}
	err := r.db.WithContext(ctx).
		Preload("OrderDetails.Course").
		First(o, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (r *orderRepository) GetByMidtransID(ctx context.Context, midtransOrderID string) (*model.Order, error) {
	o := &model.Order{}
	err := r.db.WithContext(ctx).
		Where("midtrans_order_id = ?", midtransOrderID).
		First(o).Error
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (r *orderRepository) SetMidtransOrderID(ctx context.Context, id int, midtransOrderID string) error {
	return r.updateColumn(ctx, id, "midtrans_order_id", midtransOrderID)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id int, status model.PaymentStatus) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

// MarkPaid moves the order to success and reports whether this call made the
// transition. An order that is already paid is left alone and yields false.
func (r *orderRepository) MarkPaid(ctx context.Context, id int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_status <> ?", id, model.PaymentStatusSuccess).
		Update("payment_status", model.PaymentStatusSuccess)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *orderRepository) GetDetailByOrderID(ctx context.Context, orderID int) (*model.OrderDetail, error) {
	d := &model.OrderDetail{}
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(d).Error; err != nil {
		return nil, translate(err)
	}
	return d, nil
}

func (r *orderRepository) updateColumn(ctx context.Context, id int, column string, value interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
