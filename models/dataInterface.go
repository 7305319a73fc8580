package models

import (
	"github.com/salepilot/salepilot_backend/utils"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// each related row points back at its parent key
type RelatedData interface {
	GetReferenceId() int
}

func (c Customer) GetDefault(id int) Data {
	return Customer{
		ID:       id,
		Name:     unknownCustomerName,
		IsActive: utils.NewFalse(),
	}
}

func (pm PaymentMethod) GetDefault(id int) Data {
	return PaymentMethod{
		ID:       id,
		Name:     "Cash",
		IsActive: utils.NewFalse(),
	}
}

func (s Sale) GetDefault(id int) Data {
	return Sale{ID: id}
}

func (p Payment) GetDefault(id int) Data {
	return Payment{ID: id}
}

func (p Payment) GetReferenceId() int {
	return p.SaleId
}

func (d Document) GetId() int {
	return d.ID
}

func (d Document) GetReferenceId() int {
	return d.ReferenceID
}
