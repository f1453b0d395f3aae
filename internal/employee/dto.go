package employee

type CreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required"`
	Role        Role    `json:"role" binding:"required"`
	WorkplaceID *string `json:"workplaceId"`
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Role        *Role   `json:"role"`
	Status      *Status `json:"status"`
	WorkplaceID *string `json:"workplaceId"`
}

type EmployeeResponse struct {
	Employee Employee `json:"employee"`
}

type ListResponse struct {
	Employees []Employee `json:"employees"`
}
