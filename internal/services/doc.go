// Package services holds cross-cutting helpers shared by the engine and the
// CLI: sentinel error markers, error wrapping with component/operation
// context, and context annotation for request correlation.
package services
