package services

import (
	"fmt"
	"strings"

	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/wire"
	"github.com/spf13/viper"
)

// ResolveAttachmentUrl maps an opaque attachment reference to the stable URL
// served by the content endpoint. References are never dereferenced here;
// the attachment store owns their lifecycle.
func ResolveAttachmentUrl(ref string) string {
	endpoint := strings.TrimSuffix(viper.GetString("content_endpoint"), "/")
	if len(endpoint) == 0 {
		return ""
	}
	return fmt.Sprintf("%s/attachments/%s", endpoint, ref)
}

// RenderMessage is the single path from a stored message to its wire shape,
// with attachment URLs resolved. Broadcasts and HTTP responses both go
// through it so clients always see the same representation.
func RenderMessage(message models.Message) wire.Message {
	out := message.ToWire()
	for i, attachment := range out.Attachments {
		out.Attachments[i].Url = ResolveAttachmentUrl(attachment.Ref)
	}
	return out
}
