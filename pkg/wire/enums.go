package wire

import "fmt"

// PropertyState is the device-reported state of a property: the light
// shown next to it in a control panel.
type PropertyState uint8

const (
	// StateIdle indicates the property is inactive.
	StateIdle PropertyState = iota

	// StateOk indicates the property's last operation succeeded.
	StateOk

	// StateBusy indicates an operation is in progress.
	StateBusy

	// StateAlert indicates the property is in an error condition.
	StateAlert
)

// String returns the protocol text for the state.
func (s PropertyState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateOk:
		return "Ok"
	case StateBusy:
		return "Busy"
	case StateAlert:
		return "Alert"
	default:
		return "Unknown"
	}
}

// ParsePropertyState parses the protocol text for a property state.
func ParsePropertyState(s string) (PropertyState, error) {
	switch s {
	case "Idle":
		return StateIdle, nil
	case "Ok":
		return StateOk, nil
	case "Busy":
		return StateBusy, nil
	case "Alert":
		return StateAlert, nil
	default:
		return 0, fmt.Errorf("invalid property state %q", s)
	}
}

// PropertyPerm is the client's access to a property.
type PropertyPerm uint8

const (
	// PermReadOnly marks a property the client can only observe.
	PermReadOnly PropertyPerm = iota

	// PermWriteOnly marks a property the client can only set.
	PermWriteOnly

	// PermReadWrite marks a property the client can observe and set.
	PermReadWrite
)

// String returns the protocol text for the permission.
func (p PropertyPerm) String() string {
	switch p {
	case PermReadOnly:
		return "ro"
	case PermWriteOnly:
		return "wo"
	case PermReadWrite:
		return "rw"
	default:
		return "Unknown"
	}
}

// ParsePropertyPerm parses the protocol text for a permission.
func ParsePropertyPerm(s string) (PropertyPerm, error) {
	switch s {
	case "ro":
		return PermReadOnly, nil
	case "wo":
		return PermWriteOnly, nil
	case "rw":
		return PermReadWrite, nil
	default:
		return 0, fmt.Errorf("invalid property permission %q", s)
	}
}

// SwitchState is the position of a single switch item.
type SwitchState uint8

const (
	// SwitchOff is the off position.
	SwitchOff SwitchState = iota

	// SwitchOn is the on position.
	SwitchOn
)

// String returns the protocol text for the switch state.
func (s SwitchState) String() string {
	switch s {
	case SwitchOff:
		return "Off"
	case SwitchOn:
		return "On"
	default:
		return "Unknown"
	}
}

// ParseSwitchState parses the protocol text for a switch state.
func ParseSwitchState(s string) (SwitchState, error) {
	switch s {
	case "Off":
		return SwitchOff, nil
	case "On":
		return SwitchOn, nil
	default:
		return 0, fmt.Errorf("invalid switch state %q", s)
	}
}

// SwitchRule constrains how many switches in a vector may be on at once.
type SwitchRule uint8

const (
	// RuleOneOfMany requires exactly one switch on.
	RuleOneOfMany SwitchRule = iota

	// RuleAtMostOne allows at most one switch on.
	RuleAtMostOne

	// RuleAnyOfMany places no constraint on switch positions.
	RuleAnyOfMany
)

// String returns the protocol text for the rule.
func (r SwitchRule) String() string {
	switch r {
	case RuleOneOfMany:
		return "OneOfMany"
	case RuleAtMostOne:
		return "AtMostOne"
	case RuleAnyOfMany:
		return "AnyOfMany"
	default:
		return "Unknown"
	}
}

// ParseSwitchRule parses the protocol text for a switch rule.
func ParseSwitchRule(s string) (SwitchRule, error) {
	switch s {
	case "OneOfMany":
		return RuleOneOfMany, nil
	case "AtMostOne":
		return RuleAtMostOne, nil
	case "AnyOfMany":
		return RuleAnyOfMany, nil
	default:
		return 0, fmt.Errorf("invalid switch rule %q", s)
	}
}

// BlobEnable is the client's policy for receiving BLOB updates on a
// connection. Servers send no BLOBs until the client opts in.
type BlobEnable uint8

const (
	// BlobNever suppresses all BLOB updates.
	BlobNever BlobEnable = iota

	// BlobAlso interleaves BLOB updates with other updates.
	BlobAlso

	// BlobOnly restricts the connection to BLOB updates alone.
	BlobOnly
)

// String returns the protocol text for the policy.
func (b BlobEnable) String() string {
	switch b {
	case BlobNever:
		return "Never"
	case BlobAlso:
		return "Also"
	case BlobOnly:
		return "Only"
	default:
		return "Unknown"
	}
}

// ParseBlobEnable parses the protocol text for a BLOB policy.
func ParseBlobEnable(s string) (BlobEnable, error) {
	switch s {
	case "Never":
		return BlobNever, nil
	case "Also":
		return BlobAlso, nil
	case "Only":
		return BlobOnly, nil
	default:
		return 0, fmt.Errorf("invalid BLOB enable policy %q", s)
	}
}
