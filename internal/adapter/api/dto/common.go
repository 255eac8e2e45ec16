package dto

// ErrorResponse representa a estrutura de resposta para erros.
// Reason é um código estável que os clientes usam para classificar o erro.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse representa a estrutura de resposta para operações bem-sucedidas
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewErrorResponse cria uma nova resposta de erro
func NewErrorResponse(code int, message, details string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewDomainErrorResponse cria a resposta de erro a partir de um erro de domínio
func NewDomainErrorResponse(err error) ErrorResponse {
	status, reason := ErrorStatus(err)
	resp := ErrorResponse{Code: status, Reason: reason, Message: err.Error()}
	if reason == ReasonInternal {
		resp.Message = "Erro interno"
		resp.Details = err.Error()
	}
	return resp
}

// NewSuccessResponse cria uma nova resposta de sucesso
func NewSuccessResponse(message string, data interface{}) SuccessResponse {
	return SuccessResponse{
		Message: message,
		Data:    data,
	}
}

// HealthResponse é a resposta do endpoint de saúde
type HealthResponse struct {
	Status string `json:"status"`
}
