package notification

import (
	"fmt"

	"github.com/sokomart/grocery-api/internal/entities"
)

func greetingName(firstName string) string {
	if firstName == "" {
		return "Customer"
	}
	return firstName
}

func confirmationMessage(firstName, orderNumber string) string {
	return fmt.Sprintf("Hi %s, order #%s confirmed. Thanks!", greetingName(firstName), orderNumber)
}

func statusMessage(firstName, orderNumber string, status entities.OrderStatus) string {
	name := greetingName(firstName)
	switch status {
	case entities.StatusProcessing:
		return fmt.Sprintf("Hi %s, order #%s processing.", name, orderNumber)
	case entities.StatusShipped:
		return fmt.Sprintf("Hi %s, order #%s shipped!", name, orderNumber)
	case entities.StatusDelivered:
		return fmt.Sprintf("Hi %s, order #%s delivered!", name, orderNumber)
	case entities.StatusCancelled:
		return fmt.Sprintf("Hi %s, order #%s cancelled.", name, orderNumber)
	default:
		return fmt.Sprintf("Hi %s, order #%s: %s.", name, orderNumber, status)
	}
}
