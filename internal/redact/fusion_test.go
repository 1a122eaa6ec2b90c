package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseKeepsOrderAndDuplicates(t *testing.T) {
	h := []Finding{{Start: 9, End: 40, Category: CategoryAddress}}
	e := []Finding{{Start: 11, End: 21, Category: CategoryAddress}}
	r := []Finding{{Start: 11, End: 21, Category: CategoryAddress}, {Start: 32, End: 41, Category: CategoryPhone}}

	got := Fuse(h, e, r)
	assert.Equal(t, []Finding{h[0], e[0], r[0], r[1]}, got)
	assert.Nil(t, Fuse(nil, nil, nil))
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name string
		in   []Finding
		want []Finding
	}{
		{
			name: "single",
			in:   []Finding{{Start: 1, End: 3, Category: CategoryEmail}},
			want: []Finding{{Start: 1, End: 3, Category: CategoryEmail}},
		},
		{
			name: "first label wins",
			in: []Finding{
				{Start: 9, End: 40, Category: CategoryAddress},
				{Start: 32, End: 41, Category: CategoryPhone},
			},
			want: []Finding{{Start: 9, End: 41, Category: CategoryAddress}},
		},
		{
			name: "earlier finding outranks earlier start",
			in: []Finding{
				{Start: 5, End: 10, Category: CategoryPerson},
				{Start: 0, End: 6, Category: CategoryPhone},
			},
			want: []Finding{{Start: 0, End: 10, Category: CategoryPerson}},
		},
		{
			name: "touching spans stay apart",
			in: []Finding{
				{Start: 5, End: 9, Category: CategoryPhone},
				{Start: 0, End: 5, Category: CategoryPerson},
			},
			want: []Finding{
				{Start: 0, End: 5, Category: CategoryPerson},
				{Start: 5, End: 9, Category: CategoryPhone},
			},
		},
		{
			name: "duplicates collapse",
			in: []Finding{
				{Start: 2, End: 4, Category: CategoryAddress},
				{Start: 2, End: 4, Category: CategoryAddress},
			},
			want: []Finding{{Start: 2, End: 4, Category: CategoryAddress}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coalesce(tt.in))
		})
	}
}
