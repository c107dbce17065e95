// Package entities provides the core domain types shared by the guest plugins
// and the reference host: the render outcome, structured error details, MIME
// types and the image metadata payload.
package entities
