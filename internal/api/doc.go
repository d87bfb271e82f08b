// Package api provides the haas REST API.
//
//	@title						haas API
//	@version					1.0
//	@description				PostgreSQL herd topology and lifecycle management
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
