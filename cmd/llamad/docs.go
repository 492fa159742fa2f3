package main

// General API documentation for swaggo. Run `swag init -g cmd/llamad/docs.go -o docs` to regenerate.
//
// @title           llamad API
// @version         1.0
// @description     HTTP API for local LLM session management and generation.
//
// @contact.name   llamad maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
