package main

import (
	"log"

	"distribute-bank/internal/app"
)

func main() {
	application, err := app.NewNotificationApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
