// Package campaign implements campaign lifecycle management, including the
// multi-step remote creation transaction (Campaign → AdSet → Creative → Ad).
//
// The remote platform has no multi-object transaction primitive, so the
// orchestrator sequences the four creation calls and reports exactly which
// step failed; objects created before a failing step are left in place for
// operators to inspect, never rolled back automatically. The local record
// is marked failed in that case so partial trees are visible.
//
// Repository implementations live in repository/postgres/.
package campaign
