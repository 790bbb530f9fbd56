// Package common contains shared constants and sentinel errors used across
// appkit components.
package common

// DefaultServiceName is the credential namespace used when none is configured.
// It matches the bundle identifier of the mobile app this kit pairs with.
const DefaultServiceName = "com.mobirithm.iOSBoilerplate"
