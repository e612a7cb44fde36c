// Package fleet loads declarative fleet configurations and builds ready-to-run
// coordination domains from them. A fleet file describes the coordinator
// identity, the bidding parameters shared by all agents and the resources
// taking part, so scenario setup lives in data instead of code.
package fleet
