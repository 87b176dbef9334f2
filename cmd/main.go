// cmd/main.go
package main

import (
	"order-track-api/app"
)

// @title           Order-Track API
// @version         1.0
// @description     Customer-order tracking API with access/refresh token authentication.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
