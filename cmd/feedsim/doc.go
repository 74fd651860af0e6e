// Command feedsim publishes a synthetic camwatch event stream for
// manual testing: JPEG frames with moving detections, periodic identity
// matches, tag requests, and alert signals.
package main
