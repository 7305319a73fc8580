package models

import (
	"log"

	"github.com/salepilot/salepilot_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Store{},
		&Customer{},
		&Sale{}, &Payment{}, &PaymentMethod{},
		&Document{},
		&User{},
		&OutboxMessageRecord{},
		&BalanceAuditReport{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
