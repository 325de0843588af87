package entity

// Roles válidos en los tokens emitidos por el servicio de identidad.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)
