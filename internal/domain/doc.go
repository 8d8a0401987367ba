// Package domain models SHORE ocean hazard reports, reporter identities, and
// the receipts handed back after a report is accepted.
//
// # Hazard Catalog
//
// Reports carry one of a fixed set of hazard types. Free text is not
// accepted; "Other Natural Ocean Disaster" is the catch-all:
//
//	Tsunami Warning, Coastal Flooding, Storm Surge, Hurricane/Typhoon,
//	Rip Current, King Tide, Coastal Erosion, Red Tide/Algal Bloom,
//	Other Natural Ocean Disaster
//
// Severity is a four-level scale chosen by the reporter, defaulting to
// medium:
//
//	low      minor impact
//	medium   moderate impact
//	high     significant impact
//	critical emergency response needed
//
// # Identities and Roles
//
// Identities are derived from the email typed at login. There is no
// credential directory; the role comes from a [RoleResolver]. The default
// resolver matches substrings of the email:
//
//	"gov." or "official"      → official
//	"analyst" or "research"   → analyst
//	anything else             → citizen
//
// The display name is the email local-part with "." and "_" turned into
// spaces and each word title-cased: "jane.doe_rn@x" → "Jane Doe Rn".
//
// # Report IDs
//
// Receipt IDs are "HR-" followed by the last six decimal digits of the
// submission time in Unix milliseconds, e.g. 1714144200123 → "HR-200123".
// They are display identifiers, not unique keys.
//
// # Addresses
//
// Device coordinates become an address through [ResolveAddress]. Without a
// geocoder the address is the coordinate string "Lat: 12.9716, Lng: 80.2707".
// With a geocoder the provider's formatted place name is used, falling back
// to the coordinate string when the lookup fails or finds nothing.
package domain
