// Package main is the entry point for RoadGuard.
//
//	@title						RoadGuard - Road Safety Data API Gateway
//	@version					1.0
//	@description				API key authentication, tiered rate limiting, and usage accounting in front of the UK road accident dataset.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				API key for authentication
package main

func main() {
	Execute()
}
