// Package agent implements the session loop that turns a user prompt into a
// bounded sequence of reasoning, tool, and response steps.
//
// The model is prompted to reply with exactly one prefixed activity per
// cycle (THINKING:, ACTION:, RESPONSE:, ELICITATION:, or ERROR:). Classify
// parses one raw completion into an Activity; Executor runs classified
// actions against the tool registry; Loop drives the whole turn, publishing
// every activity to an ActivitySink so observers see live progress.
//
// A turn ends in one of four terminal states: Completed (the model gave a
// final RESPONSE), AwaitingInput (the model asked the user something),
// Failed (a model call, classification, or publish broke the cycle), or
// Exhausted (the iteration cap was hit while the model was still thinking).
package agent
