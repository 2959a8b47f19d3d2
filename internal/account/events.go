// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"time"

	"github.com/ferrex/mediaserver/internal/ids"
)

// AuthEventKind names the domain events a User aggregate mutation can
// append. The aggregate performs no I/O; callers harvest events via
// TakeEvents and ship them to an event sink.
type AuthEventKind string

const (
	EventPasswordAuthenticated AuthEventKind = "password_authenticated"
	EventAuthenticationFailed  AuthEventKind = "authentication_failed"
	EventAccountLocked         AuthEventKind = "account_locked"
	EventDeviceRegistered      AuthEventKind = "device_registered"
	EventDeviceAuthenticated   AuthEventKind = "device_authenticated"
	EventDeviceTrusted         AuthEventKind = "device_trusted"
	EventDeviceRevoked         AuthEventKind = "device_revoked"
	EventAllDevicesRevoked     AuthEventKind = "all_devices_revoked"
	EventPinUpdated            AuthEventKind = "pin_updated"
)

// AuthEvent is one domain event appended by a User aggregate mutation.
type AuthEvent struct {
	Kind        AuthEventKind
	UserID      ids.UserID
	Fingerprint string
	Reason      string
	At          time.Time
}
