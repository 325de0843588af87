package dto

// SuccessResponse envoltorio de respuestas exitosas (compatible con los clientes web y móvil).
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// AvailableStock solo se informa en INSUFFICIENT_STOCK para que la UI muestre el valor real.
type ErrorResponse struct {
	Success        bool   `json:"success"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	AvailableStock *int   `json:"availableStock,omitempty"`
}
