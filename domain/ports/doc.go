// Package ports defines the interfaces that renderers and the plugin boundary
// depend on. Adapters in highlight and thumbnail implement them.
package ports
