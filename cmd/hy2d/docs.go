package main

// General API documentation for swaggo. The registered document lives in
// internal/httpapi/docs; build with -tags=swagger to serve it.
//
// @title           hy2core control API
// @version         1.0
// @description     Lifecycle, health and log streaming for the hy2core engine.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
