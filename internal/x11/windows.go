package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// iconicState is the ICCCM WM_STATE value for a minimized window.
const iconicState = 3

// FindWindow searches the EWMH client list for a window whose WM_CLASS
// instance or class equals match (case-insensitive), or whose _NET_WM_NAME
// contains it. Returns the first match.
func (c *Connection) FindWindow(match string) (xproto.Window, error) {
	if match == "" {
		return 0, fmt.Errorf("empty window match")
	}
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get client list: %w", err)
	}
	for _, win := range clients {
		if class, err := icccm.WmClassGet(c.XUtil, win); err == nil {
			if strings.EqualFold(class.Instance, match) || strings.EqualFold(class.Class, match) {
				return win, nil
			}
		}
		if name, err := ewmh.WmNameGet(c.XUtil, win); err == nil && strings.Contains(name, match) {
			return win, nil
		}
	}
	return 0, fmt.Errorf("no window found matching %q", match)
}

// IsWindowHidden reports whether a window is minimized or unmapped.
func (c *Connection) IsWindowHidden(win xproto.Window) bool {
	if states, err := ewmh.WmStateGet(c.XUtil, win); err == nil {
		for _, s := range states {
			if s == "_NET_WM_STATE_HIDDEN" {
				return true
			}
		}
	}
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState != xproto.MapStateViewable
}

// ShowWindow maps, activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) ShowWindow(win xproto.Window) error {
	xproto.MapWindow(c.XUtil.Conn(), win)

	const sourceIndication = 2 // pager/direct action
	return c.sendRootMessage(win, "_NET_ACTIVE_WINDOW", []uint32{sourceIndication, 0, 0, 0, 0})
}

// HideWindow asks the window manager to iconify a window (ICCCM 4.1.4).
func (c *Connection) HideWindow(win xproto.Window) error {
	return c.sendRootMessage(win, "WM_CHANGE_STATE", []uint32{iconicState, 0, 0, 0, 0})
}

func (c *Connection) sendRootMessage(win xproto.Window, atomName string, data []uint32) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(data),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
