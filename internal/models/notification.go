package models

import "time"

// NotificationRecord запись об отправленном уведомлении о результате перевода
type NotificationRecord struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	TransactionID string    `bson:"transaction_id" json:"transaction_id"`
	Status        string    `bson:"status" json:"status"`
	Message       string    `bson:"message" json:"message"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
