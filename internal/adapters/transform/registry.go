package transform

import "github.com/bylapidist/dtifx/internal/core/usecases"

// Registry returns the built-in transform set (§4.3 "Transform contract"),
// grouped `web/base`, `ios/swiftui`, `android/material`, `android/compose`.
func Registry() []usecases.Transform {
	var all []usecases.Transform
	all = append(all, webTransforms()...)
	all = append(all, swiftuiTransforms()...)
	all = append(all, androidTransforms()...)
	return all
}
