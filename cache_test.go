package archtable

import "testing"

func TestCacheBasicOperations(t *testing.T) {
	const capacity = 10
	cache := FactoryNewTypeInfoCache[string](capacity)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	indices := make([]int, len(items))

	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Errorf("failed to register item %s: %v", item, err)
		}
		indices[i] = index
		if index != i {
			t.Errorf("index for item %s is %d, expected %d", item, index, i)
		}
	}

	for i, item := range items {
		index, found := cache.GetIndex(item)
		if !found {
			t.Errorf("item %s not found in cache", item)
		}
		if index != indices[i] {
			t.Errorf("index for item %s is %d, expected %d", item, index, indices[i])
		}
	}

	for i, item := range items {
		cachedItem := cache.GetItem(indices[i])
		if *cachedItem != item {
			t.Errorf("item at index %d is %s, expected %s", indices[i], *cachedItem, item)
		}
	}

	for i, item := range items {
		cachedItem := cache.GetItem32(uint32(indices[i]))
		if *cachedItem != item {
			t.Errorf("item at index %d is %s, expected %s", indices[i], *cachedItem, item)
		}
	}

	if _, found := cache.GetIndex("nonexistent"); found {
		t.Errorf("found non-existent item in cache")
	}
}

func TestCacheCapacity(t *testing.T) {
	const capacity = 5
	cache := FactoryNewTypeInfoCache[int](capacity)

	for i := 0; i < capacity; i++ {
		key := string(rune('a' + i))
		if _, err := cache.Register(key, i); err != nil {
			t.Errorf("failed to register item %s: %v", key, err)
		}
	}

	if _, err := cache.Register("overflow", 100); err == nil {
		t.Errorf("expected error when exceeding cache capacity, got none")
	}
}

func TestCacheClear(t *testing.T) {
	cache := FactoryNewTypeInfoCache[string](10).(*SimpleCache[string])

	items := []string{"item1", "item2", "item3"}
	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("failed to register item %s: %v", item, err)
		}
	}

	cache.Clear()

	for _, item := range items {
		if _, found := cache.GetIndex(item); found {
			t.Errorf("item %s still found after clear", item)
		}
	}

	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("failed to register item %s after clear: %v", item, err)
		}
	}
}
