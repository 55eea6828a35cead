package gaia

import "testing"

func TestKindForExtension(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ext  string
		want FileKind
	}{
		{name: "no attachment", ext: "", want: FileNone},
		{name: "docx", ext: ".docx", want: FileRetrieval},
		{name: "txt", ext: ".txt", want: FileRetrieval},
		{name: "pdf", ext: ".pdf", want: FileRetrieval},
		{name: "pptx", ext: ".pptx", want: FileRetrieval},
		{name: "csv", ext: ".csv", want: FileCodeInterpreter},
		{name: "xlsx", ext: ".xlsx", want: FileCodeInterpreter},
		{name: "py", ext: ".py", want: FileCodeInterpreter},
		{name: "zip", ext: ".zip", want: FileCodeInterpreter},
		{name: "jpg", ext: ".jpg", want: FileImage},
		{name: "png", ext: ".png", want: FileImage},
		{name: "mp3", ext: ".mp3", want: FileAudio},
		{name: "pdb", ext: ".pdb", want: FileUnsupported},
		{name: "jsonld", ext: ".jsonld", want: FileUnsupported},
		{name: "unknown", ext: ".tar.gz", want: FileUnsupported},
		{name: "without dot", ext: "pdf", want: FileRetrieval},
		{name: "upper case", ext: ".PNG", want: FileImage},
		{name: "whitespace only", ext: "  ", want: FileNone},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := KindForExtension(tc.ext); got != tc.want {
				t.Fatalf("KindForExtension(%q): got %v want %v", tc.ext, got, tc.want)
			}
		})
	}
}

func TestNormalizeExtension(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "pdf", want: ".pdf"},
		{in: ".pdf", want: ".pdf"},
		{in: " .XLSX ", want: ".xlsx"},
		{in: "MP3", want: ".mp3"},
	}
	for _, tc := range cases {
		if got := NormalizeExtension(tc.in); got != tc.want {
			t.Fatalf("NormalizeExtension(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtensionOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "report.PDF", want: ".pdf"},
		{in: "audio.mp3", want: ".mp3"},
		{in: "noext", want: ""},
		{in: "archive.tar.gz", want: ".gz"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := ExtensionOf(tc.in); got != tc.want {
			t.Fatalf("ExtensionOf(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}
