package main

// @title           PDV Sync API
// @version         1.0
// @description     API do servidor central de vendas, estoque e relatórios dos terminais de caixa

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
