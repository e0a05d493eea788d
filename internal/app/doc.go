// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the lifecycle of one invocation: load
// manifests, compile the script, then run or describe the flow. It is
// decoupled from any specific entrypoint like a CLI.
package app
