// Package domain models a rainwater harvesting assessment: the record a
// wizard session accumulates, the field rules it is validated against, and
// the event emitted once an assessment completes.
//
// # Record lifecycle
//
// A [UserRecord] starts empty, is filled step by step through the wizard,
// and is discarded when the user leaves the wizard. It is never stored.
//
//	Personal information  → Name, Mobile, Email
//	Location              → Coordinates (both latitude and longitude, or neither)
//	Rooftop image         → RooftopImage (encoded bytes, never a file reference)
//	Analysis (final step) → RooftopArea and Analysis, assigned together
//
// # Field rules
//
//	Name:      non-empty after trimming whitespace.
//	Mobile:    exactly 10 digits starting with 6-9, i.e. ^[6-9]\d{9}$.
//	Email:     local@domain.tld with no whitespace, i.e. ^[^\s@]+@[^\s@]+\.[^\s@]+$.
//	Latitude:  decimal number in [-90, 90].
//	Longitude: decimal number in [-180, 180].
//	Image:     image/* payload of at most 10 MiB.
//
// Units: rooftop area in square meters, rainfall in millimeters per year,
// tank size and storage in liters, construction cost in rupees.
package domain
