package validator

const (
	Email            = "email"
	PhoneNumber      = "phone_number"
	Role             = "role"
	NotBlank         = "not_blank"
	DecimalGt0       = "decimal_gt0"
	FutureTime       = "future_time"
	ProductStatus    = "product_status"
	NotificationType = "notification_type"
)
