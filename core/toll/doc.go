// Package toll prices vehicles crossing the toll road.
//
// Calculate and Classify are pure: they hold no state, perform no I/O and are
// safe to call concurrently. The category table is fixed in code. Service
// wraps the evaluator for the outer adapters (CLI, HTTP, MQTT gantry), adding
// quote identifiers, logging and event publication.
package toll
