package main

// General API documentation for swaggo. Run `swag init -g cmd/humanizerd/docs.go` to regenerate docs/.
//
// @title           humanizerd API
// @version         1.0.0
// @description     Rewrites AI-generated text to sound natural using a LoRA-adapted language model.
//
// @BasePath  /
//
// @schemes http
//
// @securityDefinitions.apikey AuthCode
// @in header
// @name Authorization
