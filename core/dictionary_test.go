package core

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestDictionaryGenerate(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())

	dict.AddConstant("TEST_CONST", uint32(42))
	dict.AddConstant("TEST_STR", "hello")
	dict.AddEnumeration("test_pins", []string{"gpio0", "gpio1", "gpio2"})

	dict.commandReg.Register("test_cmd", "arg=%u", func(data *[]byte) error {
		return nil
	})

	output := string(dict.Generate())

	if !strings.Contains(output, `"version":"goqei-0.1.0"`) {
		t.Error("Dictionary missing version")
	}
	if !strings.Contains(output, `"TEST_CONST":"42"`) {
		t.Error("Dictionary missing TEST_CONST")
	}
	if !strings.Contains(output, `"TEST_STR":"hello"`) {
		t.Error("Dictionary missing TEST_STR")
	}
	if !strings.Contains(output, `"test_cmd arg=%u"`) {
		t.Error("Dictionary missing registered command")
	}
	if !strings.Contains(output, `"gpio1":1`) {
		t.Error("Dictionary missing enumeration value")
	}
}

func TestDictionaryIsValidJSON(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	dict.AddConstant("CLOCK_FREQ", uint32(12000000))
	dict.AddEnumeration("pin", []string{"gpio0", "gpio1"})
	dict.commandReg.Register("config_encoder", "oid=%c pin_a=%u pin_b=%u", func(data *[]byte) error {
		return nil
	})
	dict.commandReg.Register("encoder_count", "oid=%c count=%i", nil)

	var parsed struct {
		Version      string                    `json:"version"`
		Config       map[string]string         `json:"config"`
		Commands     map[string]int            `json:"commands"`
		Responses    map[string]int            `json:"responses"`
		Enumerations map[string]map[string]int `json:"enumerations"`
	}
	if err := json.Unmarshal(dict.Generate(), &parsed); err != nil {
		t.Fatalf("Generated dictionary is not valid JSON: %v", err)
	}

	if parsed.Version != "goqei-0.1.0" {
		t.Errorf("Wrong version: %s", parsed.Version)
	}
	if _, ok := parsed.Commands["config_encoder oid=%c pin_a=%u pin_b=%u"]; !ok {
		t.Error("config_encoder not in commands")
	}
	if _, ok := parsed.Responses["encoder_count oid=%c count=%i"]; !ok {
		t.Error("encoder_count not in responses")
	}
	if parsed.Enumerations["pin"]["gpio1"] != 1 {
		t.Error("pin enumeration wrong")
	}
}

func TestDictionaryBuildCompresses(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	dict.AddConstant("MCU", "rp2040")
	dict.commandReg.Register("get_uptime", "", func(data *[]byte) error {
		return nil
	})

	dict.BuildDictionary()
	compressed := dict.Generate()

	if len(compressed) < 2 || compressed[0] != 0x78 {
		t.Fatalf("Cached dictionary is not zlib compressed (first byte 0x%02x)", compressed[0])
	}

	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("Failed to open zlib stream: %v", err)
	}
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}

	if !strings.Contains(string(decompressed), `"get_uptime"`) {
		t.Error("Decompressed dictionary missing get_uptime")
	}
}

func TestDictionaryGetChunk(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	dict.AddConstant("MCU", "rp2040")
	dict.BuildDictionary()

	full := dict.Generate()

	// Reassemble the dictionary from chunks the way the host does
	var assembled []byte
	offset := uint32(0)
	for {
		chunk := dict.GetChunk(offset, 40)
		if len(chunk) == 0 {
			break
		}
		assembled = append(assembled, chunk...)
		offset += uint32(len(chunk))
	}

	if !bytes.Equal(assembled, full) {
		t.Errorf("Chunked reassembly mismatch: got %d bytes, want %d", len(assembled), len(full))
	}

	// Out-of-range offset returns an empty chunk
	if chunk := dict.GetChunk(uint32(len(full))+100, 40); len(chunk) != 0 {
		t.Error("Expected empty chunk for out-of-range offset")
	}
}
