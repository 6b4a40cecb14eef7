// Package cli is responsible for parsing command-line arguments, binding
// flags, environment and config file through viper, rendering results and
// handling process-level concerns like exit codes. It translates user input
// into the application's internal configuration.
package cli
