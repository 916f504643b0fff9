package formdata_test

import (
	"fmt"
	"net/http"
	"os"

	"github.com/tomasbasham/formdata"
)

func ExampleParser_Parse() {
	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n" +
		"\r\n" +
		"Holiday\r\n" +
		"--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"photo\"; filename=\"beach.jpg\"\r\n" +
		"Content-Type: image/jpeg\r\n" +
		"\r\n" +
		"not really a jpeg\r\n" +
		"--XYZ--\r\n"

	p := formdata.NewParser(formdata.DefaultConfig())
	ds, err := p.Parse(&formdata.RawRequest{
		Verb:    http.MethodPatch,
		Headers: http.Header{"Content-Type": {"multipart/form-data; boundary=XYZ"}},
		Payload: []byte(body),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	defer ds.RemoveAll()

	title, _ := ds.Params.Get("title")
	photo, _ := ds.Files.Get("photo")
	fmt.Println(title)
	fmt.Println(photo.Name, photo.Type, photo.Size, photo.Error)
	// Output:
	// Holiday
	// beach.jpg image/jpeg 17 ok
}

func ExampleFormatSize() {
	fmt.Println(formdata.FormatSize(0))
	fmt.Println(formdata.FormatSize(12345))
	fmt.Println(formdata.FormatSize(5 << 20))
	// Output:
	// 0
	// 12.06K
	// 5M
}
