// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.

// Package security validates file paths accepted from the command line
// before they are opened for reading or writing.
//
// # Path Security
//
// File path operations include multiple layers of protection:
//   - Path traversal detection and prevention
//   - System directory write protection
//   - Jail/sandbox path enforcement
//   - Platform-specific validation (Windows reserved names, etc.)
//
// # Resource Limits
//
//   - Maximum file size: 500MB
//   - Maximum path length: 4096 characters
//
// # Usage
//
// Input validation:
//
//	err := security.ValidateInputPath(filePath)
//
// Output validation:
//
//	err := security.ValidateOutputPath(filePath)
package security
