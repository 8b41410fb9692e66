package message

import (
	"encoding/xml"
	"fmt"
	"time"
)

// wirePayload is the superset of fields the official-account platform sends.
// CDATA sections are unwrapped by encoding/xml on decode.
type wirePayload struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	MsgID        int64    `xml:"MsgId"`

	Content     string  `xml:"Content"`
	PicURL      string  `xml:"PicUrl"`
	MediaID     string  `xml:"MediaId"`
	Format      string  `xml:"Format"`
	Recognition string  `xml:"Recognition"`
	Title       string  `xml:"Title"`
	Description string  `xml:"Description"`
	URL         string  `xml:"Url"`
	LocationX   float64 `xml:"Location_X"`
	LocationY   float64 `xml:"Location_Y"`
	Scale       int     `xml:"Scale"`
	Label       string  `xml:"Label"`

	Event    string `xml:"Event"`
	EventKey string `xml:"EventKey"`
}

// Parse decodes one inbound webhook body into a Message.
//
// Content messages map directly from MsgType. Event pushes arrive with
// MsgType "event" and the concrete kind in the Event field (the platform
// upper-cases CLICK and VIEW; parsing normalizes them).
func Parse(raw []byte) (*Message, error) {
	var p wirePayload
	if err := xml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode message xml: %w", err)
	}

	msg := &Message{
		Source:     p.FromUserName,
		Target:     p.ToUserName,
		CreateTime: time.Unix(p.CreateTime, 0),
		MsgID:      p.MsgID,
	}

	switch p.MsgType {
	case "text":
		msg.Kind = KindText
		msg.Content = p.Content
	case "image":
		msg.Kind = KindImage
		msg.PicURL = p.PicURL
		msg.MediaID = p.MediaID
	case "link":
		msg.Kind = KindLink
		msg.Title = p.Title
		msg.Description = p.Description
		msg.URL = p.URL
	case "location":
		msg.Kind = KindLocation
		msg.LocationX = p.LocationX
		msg.LocationY = p.LocationY
		msg.Scale = p.Scale
		msg.Label = p.Label
	case "voice":
		msg.Kind = KindVoice
		msg.MediaID = p.MediaID
		msg.Format = p.Format
		msg.Recognition = p.Recognition
	case "event":
		switch p.Event {
		case "subscribe":
			msg.Kind = KindSubscribe
		case "unsubscribe":
			msg.Kind = KindUnsubscribe
		case "CLICK", "click":
			msg.Kind = KindClick
			msg.EventKey = p.EventKey
		case "VIEW", "view":
			msg.Kind = KindView
			msg.EventKey = p.EventKey
		default:
			return nil, fmt.Errorf("unknown event type %q", p.Event)
		}
	default:
		return nil, fmt.Errorf("unknown message type %q", p.MsgType)
	}

	return msg, nil
}
