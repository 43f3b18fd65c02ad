// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package domain holds the value types shared by the capture pipeline: user settings,
// resolved streams, capture events and the error taxonomy. It has no dependencies on
// other streamshot packages.
package domain
