package main

// @title           Streamlink API
// @version         1.0
// @description     Links Twitch, YouTube and Kick accounts through OAuth2 with PKCE and keeps their tokens fresh.

// @contact.name   Streamlink OSS
// @contact.url    https://github.com/custodia-labs/streamlink/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"os"

	_ "github.com/custodia-labs/streamlink/docs"
)

var version = "dev"

func main() {
	os.Exit(execute())
}
