package genie

import "fmt"

// Control bytes sent by the display outside of any frame
const (
	ACK byte = 0x06 // Command accepted
	NAK byte = 0x15 // Command rejected, also answers garbage during link sync

	syncByte byte = 'X' // Dummy byte used to provoke a NAK while syncing the link
)

// Command is the first byte of every frame on the wire
type Command byte

const (
	ReadObject         Command = 0
	WriteObject        Command = 1
	WriteString        Command = 2
	WriteStringUnicode Command = 3
	WriteContrast      Command = 4
	ReportObject       Command = 5
	ReportEvent        Command = 7
	MagicBytes         Command = 8
	DoubleBytes        Command = 9
	ReportMagicBytes   Command = 10
	ReportDoubleBytes  Command = 11
)

// MaxPayload is the largest length that fits the single length byte of a frame
const MaxPayload = 255

var commandNames = map[Command]string{
	ReadObject:         "ReadObject",
	WriteObject:        "WriteObject",
	WriteString:        "WriteString",
	WriteStringUnicode: "WriteStringUnicode",
	WriteContrast:      "WriteContrast",
	ReportObject:       "ReportObject",
	ReportEvent:        "ReportEvent",
	MagicBytes:         "MagicBytes",
	DoubleBytes:        "DoubleBytes",
	ReportMagicBytes:   "ReportMagicBytes",
	ReportDoubleBytes:  "ReportDoubleBytes",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", byte(c))
}

// isVariable reports whether frames of this kind carry a length-prefixed payload
// instead of a 16 bit data word.
func (c Command) isVariable() bool {
	switch c {
	case MagicBytes, DoubleBytes, ReportMagicBytes, ReportDoubleBytes:
		return true
	}
	return false
}

// isDouble reports whether every payload element is sent as two bytes, high byte first
func (c Command) isDouble() bool {
	return c == DoubleBytes || c == ReportDoubleBytes
}

// ObjectType identifies a widget class on the display. The driver passes it through
// without interpretation; the values below follow the Visi-Genie object list.
type ObjectType byte

const (
	ObjDipSwitch    ObjectType = 0
	ObjKnob         ObjectType = 1
	ObjRockerSwitch ObjectType = 2
	ObjRotarySwitch ObjectType = 3
	ObjSlider       ObjectType = 4
	ObjTrackbar     ObjectType = 5
	ObjWinButton    ObjectType = 6
	ObjAngularMeter ObjectType = 7
	ObjCoolGauge    ObjectType = 8
	ObjCustomDigits ObjectType = 9
	ObjForm         ObjectType = 10
	ObjGauge        ObjectType = 11
	ObjImage        ObjectType = 12
	ObjKeyboard     ObjectType = 13
	ObjLed          ObjectType = 14
	ObjLedDigits    ObjectType = 15
	ObjMeter        ObjectType = 16
	ObjStrings      ObjectType = 17
	ObjThermometer  ObjectType = 18
	ObjUserLed      ObjectType = 19
	ObjVideo        ObjectType = 20
	ObjStaticText   ObjectType = 21
	ObjSound        ObjectType = 22
	ObjTimer        ObjectType = 23
	ObjILedDigitsH  ObjectType = 38 // High word of a 32 bit internal LED digits widget
	ObjILedDigitsL  ObjectType = 47 // Low word, also used alone for 16 bit values
)

// ObjectTypes maps the lower case names used in config files to object types
var ObjectTypes = map[string]ObjectType{
	"dipswitch":     ObjDipSwitch,
	"knob":          ObjKnob,
	"rockerswitch":  ObjRockerSwitch,
	"rotaryswitch":  ObjRotarySwitch,
	"slider":        ObjSlider,
	"trackbar":      ObjTrackbar,
	"winbutton":     ObjWinButton,
	"angularmeter":  ObjAngularMeter,
	"coolgauge":     ObjCoolGauge,
	"customdigits":  ObjCustomDigits,
	"form":          ObjForm,
	"gauge":         ObjGauge,
	"image":         ObjImage,
	"keyboard":      ObjKeyboard,
	"led":           ObjLed,
	"leddigits":     ObjLedDigits,
	"meter":         ObjMeter,
	"strings":       ObjStrings,
	"thermometer":   ObjThermometer,
	"userled":       ObjUserLed,
	"video":         ObjVideo,
	"statictext":    ObjStaticText,
	"sound":         ObjSound,
	"timer":         ObjTimer,
	"iled_digits_h": ObjILedDigitsH,
	"iled_digits_l": ObjILedDigitsL,
}
