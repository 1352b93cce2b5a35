/*
Package cp holds the content primitives of the mesh: the proof-of-work
Difficulty and the Block it gates.

All integers are big-endian.

Difficulty
+---------+---------+---------+--------+-----------+
|  TCost  |  MCost  |  PCost  |  NBits |  HashLen  |
+---------+---------+---------+--------+-----------+
(bytes)
TCost       4
MCost       4
PCost       3
NBits       1
HashLen     1

Block
+-----------------------------+
|            Index            |
+------------+----------------+
|  PrevRefL  |    PrevRef     |
+------------+----------------+
|        (Difficulty)         |
+------------+----------------+
|  PayloadL  |    Payload     |
+------------+----------------+
|            Nonce            |
+-----------------------------+
(bytes)
Index               8
PrevRef length      2
PrevRef             -
Difficulty          13
Payload length      4
Payload             -
Nonce               8

The proof-of-work message of a block for a candidate nonce is the
marshaled block carrying that nonce.
*/
package cp
