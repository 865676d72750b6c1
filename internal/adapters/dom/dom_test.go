//go:build js && wasm

package dom

import (
	"syscall/js"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/formsubmit/internal/domain/form"
	"github.com/okian/formsubmit/pkg/logger"
)

func newFile(content, name, contentType string) js.Value {
	opts := js.Global().Get("Object").New()
	opts.Set("type", contentType)
	parts := js.Global().Get("Array").New(content)
	return js.Global().Get("File").New(parts, name, opts)
}

func TestCaptureFormData(t *testing.T) {
	Convey("Given form data with a text entry and a file entry", t, func() {
		fd := js.Global().Get("FormData").New()
		fd.Call("append", "name", "Alice")
		fd.Call("append", "file", newFile("blob-bytes", "blob.txt", "text/plain"))

		Convey("When it is captured and then changed before the files are read", func() {
			snap := captureFormData(fd, logger.Discard())
			fd.Call("set", "name", "Bob")
			fd.Call("delete", "file")

			Convey("Then the fields reflect the state at capture time", func() {
				fields := snap.Fields()
				So(len(fields), ShouldEqual, 2)
				So(fields[0], ShouldResemble, form.Text("name", "Alice"))
				So(fields[1].Name, ShouldEqual, "file")
				So(fields[1].File.Filename, ShouldEqual, "blob.txt")
				So(fields[1].File.ContentType, ShouldEqual, "text/plain")
				So(string(fields[1].File.Content), ShouldEqual, "blob-bytes")
			})
		})

		Convey("When an empty file input is captured", func() {
			fd.Call("append", "attachment", newFile("", "", "application/octet-stream"))
			fields := captureFormData(fd, logger.Discard()).Fields()

			Convey("Then it becomes an empty file field", func() {
				So(len(fields), ShouldEqual, 3)
				So(fields[2].IsFile(), ShouldBeTrue)
				So(fields[2].File.Content, ShouldBeEmpty)
			})
		})
	})
}
