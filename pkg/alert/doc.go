// Package alert delivers price notifications.
//
// PushoverNotifier posts to the Pushover messages API:
//   - POST https://api.pushover.net/1/messages.json
//   - form fields: token (application), user (recipient key), message, optional title
//
// LogNotifier writes the message to the logger instead and is used for dry runs.
package alert
