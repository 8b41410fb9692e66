package message

import (
	"encoding/xml"
	"fmt"
	"time"
)

// cdata renders its value inside a CDATA section, which is how the platform
// expects every string field on outbound replies.
type cdata struct {
	Value string `xml:",cdata"`
}

type textReply struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   cdata    `xml:"ToUserName"`
	FromUserName cdata    `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      cdata    `xml:"MsgType"`
	Content      cdata    `xml:"Content"`
}

// RenderReply builds the outbound text-reply XML for a handler's reply to
// inbound. Sender and recipient are swapped relative to the inbound message.
func RenderReply(reply string, inbound *Message, now time.Time) ([]byte, error) {
	r := textReply{
		ToUserName:   cdata{inbound.Source},
		FromUserName: cdata{inbound.Target},
		CreateTime:   now.Unix(),
		MsgType:      cdata{"text"},
		Content:      cdata{reply},
	}
	out, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode reply xml: %w", err)
	}
	return out, nil
}
