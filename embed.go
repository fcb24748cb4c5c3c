package siteforge

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// builder.js, the editor-side API client.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
