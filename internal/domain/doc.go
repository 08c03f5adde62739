// Package domain defines the core entities shared across services:
// ad accounts, campaigns and their ad-set/creative/ad children, performance
// snapshots, and optimization rules. It has no dependencies on other
// internal packages so that services and repositories can both import it.
package domain
