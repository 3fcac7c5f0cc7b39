package encoding

import (
	"sync"
	"testing"
)

type segmentRecord struct {
	Segments    int64 `msgpack:"segments"`
	TotalLength int64 `msgpack:"total_length"`
	Complete    bool  `msgpack:"complete"`
}

func TestMarshal_Basic(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"string", "hello world"},
		{"int64", int64(9876543210)},
		{"float64", 3.14159},
		{"bool", true},
		{"slice", []interface{}{1, "a", nil}},
		{"record", segmentRecord{Segments: 3, TotalLength: 65537, Complete: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Marshal(tc.input)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if len(data) == 0 {
				t.Error("Expected non-empty result")
			}
		})
	}
}

func TestMarshal_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				result, err := Marshal(segmentRecord{Segments: int64(id), TotalLength: int64(j)})
				if err != nil {
					t.Errorf("Marshal failed: %v", err)
					return
				}
				if len(result) == 0 {
					t.Error("Expected non-empty result")
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestUnmarshal_Record(t *testing.T) {
	in := segmentRecord{Segments: 3, TotalLength: 65537, Complete: true}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out segmentRecord
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("Record mismatch: got %+v, want %+v", out, in)
	}
}

func TestUnmarshal_LooseInterface(t *testing.T) {
	data, err := Marshal([]interface{}{"text", []byte{0xDE, 0xAD}, int64(12345)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var result interface{}
	if err := Unmarshal(data, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	row, ok := result.([]interface{})
	if !ok || len(row) != 3 {
		t.Fatalf("Expected 3 element slice, got %T %v", result, result)
	}
	if s, ok := row[0].(string); !ok || s != "text" {
		t.Errorf("text: got %T %v", row[0], row[0])
	}
	// Loose decoding turns bin into string
	if s, ok := row[1].(string); !ok || s != "\xde\xad" {
		t.Errorf("bin: got %T %v", row[1], row[1])
	}
	if v, ok := row[2].(int64); !ok || v != 12345 {
		t.Errorf("int: got %T %v", row[2], row[2])
	}
}

func BenchmarkMarshal(b *testing.B) {
	rec := segmentRecord{Segments: 12, TotalLength: 1 << 20, Complete: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(rec)
	}
}
