package mapping

import (
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
)

// padEntry routes a gamepad button mask into a Battalion buttons word.
type padEntry struct {
	mask uint16 // xinput.Button* mask
	sb   uint16 // xid.SBC* mask
	word int    // destination word index
}

// chatpadEntry routes a chatpad key into a Battalion buttons word.
type chatpadEntry struct {
	code uint8  // xinput.Chatpad* key code
	sb   uint16 // xid.SBC* mask
	word int
}

// Gamepad buttons applied directly every frame.
var padMap = [...]padEntry{
	{xinput.ButtonStart, xid.SBC0Start, 0},
	{xinput.ButtonLShoulder, xid.SBC0RightJoyFire, 0},
	{xinput.ButtonRThumb, xid.SBC0RightJoyLockOn, 0},
	{xinput.ButtonB, xid.SBC0RightJoyLockOn, 0},
	{xinput.ButtonRShoulder, xid.SBC0RightJoyMainWeapon, 0},
	{xinput.ButtonA, xid.SBC0RightJoyMainWeapon, 0},
	{xinput.ButtonGuide, xid.SBC0Eject, 0},
	{xinput.ButtonLThumb, xid.SBC2LeftJoySightChange, 2},
	{xinput.ButtonY, xid.SBC1Chaff, 1},
}

// Chatpad keys applied directly every frame.
var chatpadMap = [...]chatpadEntry{
	{xinput.Chatpad0, xid.SBC0Eject, 0},
	{xinput.ChatpadD, xid.SBC1Washing, 1},
	{xinput.ChatpadF, xid.SBC1Extinguisher, 1},
	{xinput.ChatpadG, xid.SBC1Chaff, 1},
	{xinput.ChatpadX, xid.SBC1WeaponConMain, 1},
	{xinput.ChatpadRight, xid.SBC1WeaponConMain, 1},
	{xinput.ChatpadC, xid.SBC1WeaponConSub, 1},
	{xinput.ChatpadLeft, xid.SBC1WeaponConSub, 1},
	{xinput.ChatpadV, xid.SBC1WeaponConMagazine, 1},
	{xinput.ChatpadSpace, xid.SBC1WeaponConMagazine, 1},
	{xinput.ChatpadU, xid.SBC0MultiMonOpenClose, 0},
	{xinput.ChatpadJ, xid.SBC0MultiMonModeSelect, 0},
	{xinput.ChatpadN, xid.SBC0MainMonZoomIn, 0},
	{xinput.ChatpadI, xid.SBC0MultiMonMapZoom, 0},
	{xinput.ChatpadK, xid.SBC0MultiMonSubMonitor, 0},
	{xinput.ChatpadM, xid.SBC0MainMonZoomOut, 0},
	{xinput.ChatpadEnter, xid.SBC0Start, 0},
	{xinput.ChatpadP, xid.SBC0CockpitHatch, 0},
	{xinput.ChatpadComma, xid.SBC0Ignition, 0},
}

// Chatpad keys applied only while the messenger modifier (or Back) is held.
var chatpadAlt1Map = [...]chatpadEntry{
	{xinput.Chatpad1, xid.SBC1Comm1, 1},
	{xinput.Chatpad2, xid.SBC1Comm2, 1},
	{xinput.Chatpad3, xid.SBC1Comm3, 1},
	{xinput.Chatpad4, xid.SBC1Comm4, 1},
	{xinput.Chatpad5, xid.SBC2Comm5, 2},
}

// Chatpad keys applied in the default configuration.
var chatpadAlt2Map = [...]chatpadEntry{
	{xinput.Chatpad1, xid.SBC1FunctionF1, 1},
	{xinput.Chatpad2, xid.SBC1FunctionTankDetach, 1},
	{xinput.Chatpad3, xid.SBC0FunctionFSS, 0},
	{xinput.Chatpad4, xid.SBC1FunctionF2, 1},
	{xinput.Chatpad5, xid.SBC1FunctionOverride, 1},
	{xinput.Chatpad6, xid.SBC0FunctionManipulator, 0},
	{xinput.Chatpad7, xid.SBC1FunctionF3, 1},
	{xinput.Chatpad8, xid.SBC1FunctionNightScope, 1},
	{xinput.Chatpad9, xid.SBC0FunctionLineColor, 0},
}

// Chatpad keys driving the physical toggle switches. Each rising edge flips
// the destination bit instead of setting it.
var chatpadToggleMap = [...]chatpadEntry{
	{xinput.ChatpadQ, xid.SBC2ToggleOxygenSupply, 2},
	{xinput.ChatpadA, xid.SBC2ToggleFilterControl, 2},
	{xinput.ChatpadW, xid.SBC2ToggleVTLocation, 2},
	{xinput.ChatpadS, xid.SBC2ToggleBuffreMat, 2},
	{xinput.ChatpadZ, xid.SBC2ToggleFuelFlowRate, 2},
}

// overloadEntry resolves the X button against the cockpit lamp state: the
// first entry whose lamp nibble is lit wins.
type overloadEntry struct {
	lit func(*xid.BattalionOut) bool
	sb  uint16 // destination in buttons word 1
}

var overloadMap = [...]overloadEntry{
	{func(o *xid.BattalionOut) bool { return o.ChaffExtinguisher&0x0F != 0 }, xid.SBC1Extinguisher},
	{func(o *xid.BattalionOut) bool { return o.Comm1MagazineChange&0x0F != 0 }, xid.SBC1WeaponConMagazine},
	{func(o *xid.BattalionOut) bool { return o.WashingLineColorChange&0xF0 != 0 }, xid.SBC1Washing},
}
