/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package decoder

// Two consecutive payloads captured from an 8 channel device, tick 46 was lost in between.
var capturedPayload45 = []byte{
	45, 21, 127, 124, 126, 175, 122, 239, 122, 6, 139, 110, 128, 131, 94, 116,
	123, 205, 159, 103, 128, 136, 90, 133, 120, 203, 144, 104, 85, 136, 86, 133,
	121, 6, 143, 130, 130, 139, 94, 146, 122, 205, 138, 130, 128, 137, 95, 132,
	124, 205, 144, 138, 127, 139, 94, 138, 122, 6, 144, 108, 86, 133, 87, 108,
	121, 17, 145, 103, 85, 137, 88, 119, 123, 205, 158, 119, 129, 131, 95, 119,
	121, 15, 143, 112, 84, 134, 87, 124, 122, 6, 143, 114, 86, 132, 90, 120,
	124, 205, 160, 107, 126, 138, 92, 148, 121, 205, 147, 100, 87, 136, 90, 134,
	121, 16, 146, 112, 83, 133, 88, 124, 121, 205, 146, 103, 93, 135, 94, 133,
	121, 17, 145, 104, 125, 135, 93, 131, 122, 42, 143, 109, 81, 137, 90, 143,
	123, 205, 157, 124, 125, 139, 91, 156, 122, 205, 147, 101, 86, 137, 87, 132,
	124, 205, 153, 129, 126, 139, 94, 145, 122, 205, 146, 101, 83, 137, 88, 133,
	121, 205, 148, 100, 90, 136, 89, 133, 121, 22, 144, 128, 128, 138, 95, 143,
	122, 205, 159, 115, 126, 138, 94, 147, 120, 205, 147, 102, 82, 136, 88, 133,
}

var capturedPayload47 = []byte{
	47, 21, 127, 124, 126, 174, 129, 240, 122, 27, 139, 116, 82, 134, 103, 127,
	123, 205, 140, 106, 86, 136, 103, 129, 122, 205, 142, 108, 86, 137, 104, 127,
	122, 205, 142, 108, 86, 135, 106, 127, 122, 205, 145, 106, 87, 135, 106, 127,
	123, 205, 155, 118, 125, 140, 103, 128, 123, 205, 154, 120, 124, 140, 103, 129,
	123, 205, 157, 111, 124, 140, 103, 128, 124, 205, 138, 131, 124, 137, 102, 128,
	124, 205, 154, 120, 124, 140, 102, 129, 124, 205, 151, 120, 123, 140, 101, 129,
	121, 205, 140, 121, 124, 139, 99, 130, 123, 205, 142, 108, 82, 136, 105, 127,
	121, 12, 139, 120, 126, 133, 103, 128, 122, 205, 144, 109, 83, 135, 105, 127,
	122, 205, 151, 106, 102, 135, 104, 127, 124, 205, 152, 106, 100, 134, 104, 127,
	121, 184, 139, 130, 125, 137, 100, 130, 122, 205, 138, 123, 124, 138, 100, 129,
	122, 12, 138, 131, 125, 131, 104, 125, 123, 205, 155, 107, 124, 135, 105, 126,
	124, 205, 153, 106, 124, 135, 104, 126, 122, 191, 140, 122, 124, 137, 101, 129,
	122, 12, 139, 132, 124, 136, 101, 130, 124, 205, 153, 106, 125, 136, 103, 127,
}
